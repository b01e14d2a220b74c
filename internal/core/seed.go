package core

// Demo data loaded when nothing has been stored yet. Amounts are in pesos.

func SeedCategories() []Category {
	return []Category{
		{ID: "food", Name: "Alimentación", IconName: "Utensils", Color: "#FF6384", Type: Expense},
		{ID: "transport", Name: "Transporte", IconName: "Car", Color: "#36A2EB", Type: Expense},
		{ID: "entertainment", Name: "Entretenimiento", IconName: "Film", Color: "#FFCE56", Type: Expense},
		{ID: "shopping", Name: "Compras", IconName: "ShoppingBag", Color: "#4BC0C0", Type: Expense},
		{ID: "housing", Name: "Vivienda", IconName: "Home", Color: "#9966FF", Type: Expense},
		{ID: "utilities", Name: "Servicios", IconName: "Zap", Color: "#FF9F40", Type: Expense},
		{ID: "salary", Name: "Salario", IconName: "Landmark", Color: "#2ECC71", Type: Income},
		{ID: "freelance", Name: "Freelance", IconName: "HandCoins", Color: "#3498DB", Type: Income},
	}
}

func SeedTransactions() []Transaction {
	tx := func(id string, day int, desc string, amount int64, typ TransactionType, cat string) Transaction {
		return Transaction{
			ID:          id,
			Date:        NewDate(2024, 7, day),
			Description: desc,
			Amount:      FromMajor(amount),
			Type:        typ,
			CategoryID:  cat,
		}
	}
	return []Transaction{
		tx("1", 1, "Supermercado", 70215, Expense, "food"),
		tx("2", 2, "Gasolina", 37200, Expense, "transport"),
		tx("3", 3, "Entradas de cine", 27900, Expense, "entertainment"),
		tx("4", 5, "Camiseta nueva", 23250, Expense, "shopping"),
		tx("5", 10, "Arriendo", 1116000, Expense, "housing"),
		tx("6", 12, "Cuenta de electricidad", 60450, Expense, "utilities"),
		tx("7", 15, "Almuerzo con amigos", 41850, Expense, "food"),
		tx("8", 18, "Pasaje de autobús", 18600, Expense, "transport"),
		tx("9", 20, "Entrada de concierto", 74400, Expense, "entertainment"),
		tx("10", 22, "Curso en línea", 46500, Expense, "shopping"),
		tx("11", 25, "Cena fuera", 55800, Expense, "food"),
		tx("12", 28, "Cuenta de internet", 51150, Expense, "utilities"),
		tx("101", 1, "Salario mensual", 2790000, Income, "salary"),
		tx("102", 15, "Proyecto freelance A", 465000, Income, "freelance"),
	}
}

func SeedBudgetGoals() []BudgetGoal {
	return []BudgetGoal{
		{ID: "budget_food", CategoryID: "food", Amount: FromMajor(372000)},
		{ID: "budget_transport", CategoryID: "transport", Amount: FromMajor(139500)},
		{ID: "budget_entertainment", CategoryID: "entertainment", Amount: FromMajor(186000)},
		{ID: "budget_shopping", CategoryID: "shopping", Amount: FromMajor(139500)},
		{ID: "budget_utilities", CategoryID: "utilities", Amount: FromMajor(139500)},
	}
}
