package plans

import "github.com/shopspring/decimal"

// Default returns the managed IT plans shown on the pricing page.
func Default() *Catalog {
	return MustCatalog(
		Plan{
			Name:                "Basic",
			MonthlyPricePerSeat: decimal.NewFromInt(99),
			Description:         "Essential IT support for small teams getting started",
			Features: []string{
				"Business-hours help desk",
				"Remote monitoring and patching",
				"Endpoint antivirus",
				"Microsoft 365 administration",
			},
		},
		Plan{
			Name:                "Premium",
			MonthlyPricePerSeat: decimal.NewFromInt(149),
			Description:         "Proactive support and security for growing businesses",
			Features: []string{
				"Everything in Basic",
				"24/7 help desk",
				"Managed backup and recovery",
				"Email security and phishing training",
				"Quarterly technology reviews",
			},
		},
		Plan{
			Name:                "Enterprise",
			MonthlyPricePerSeat: decimal.NewFromInt(199),
			Description:         "Fully managed IT with a dedicated engineer",
			Features: []string{
				"Everything in Premium",
				"Dedicated account engineer",
				"Compliance reporting",
				"On-site support visits",
				"Vendor management",
			},
		},
	)
}
