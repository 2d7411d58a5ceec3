package database

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"financas-go-be/models"
)

var personalExpenseCategories = []string{
	"Alimentação", "Moradia", "Transporte", "Saúde", "Educação",
	"Contas", "Assinaturas", "Compras", "Lazer", "Família", "Outros",
}

var personalIncomeCategories = []string{
	"Salário", "Vendas", "Presente", "Comissão", "Serviços", "Outros Receitas",
}

var businessExpenseCategories = []string{
	"Fornecedores", "Marketing", "Ferramentas/Software", "Impostos/Taxas",
	"Pró-labore", "Serviços Terceirizados", "Logística", "Operacional", "Outros",
}

var businessIncomeCategories = []string{
	"Vendas", "Serviços", "Comissão", "Reembolsos", "Outros Receitas",
}

// SeedCategories inserts the default category set, once. Reruns are no-ops.
func SeedCategories(db *gorm.DB) error {
	seed := func(names []string, mode models.UserMode, txType models.TransactionType) error {
		for _, name := range names {
			cat := models.Category{Name: name, Mode: mode, Type: txType}
			err := db.Where("name = ? AND mode = ? AND type = ?", name, mode, txType).
				Attrs(models.Category{ID: uuid.New()}).
				FirstOrCreate(&cat).Error
			if err != nil {
				return err
			}
		}
		return nil
	}

	if err := seed(personalExpenseCategories, models.ModePersonal, models.TypeExpense); err != nil {
		return err
	}
	if err := seed(personalIncomeCategories, models.ModePersonal, models.TypeIncome); err != nil {
		return err
	}
	if err := seed(businessExpenseCategories, models.ModeBusiness, models.TypeExpense); err != nil {
		return err
	}
	return seed(businessIncomeCategories, models.ModeBusiness, models.TypeIncome)
}
