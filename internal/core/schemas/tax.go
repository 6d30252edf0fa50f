package schemas

import "github.com/JonMunkholm/reconcile/internal/core"

func init() {
	registerTaxTransactions()
}

// Tax engine exports ship headers in natural spelling, so the canonical
// names keep that form; normalization makes "Transaction ID" and
// "transaction_id" land on the same match either way.
func registerTaxTransactions() {
	core.Register(core.SchemaDefinition{
		Info: core.SchemaInfo{
			Key:         "tax_transactions",
			Group:       "Tax",
			Label:       "Tax Transactions",
			Description: "Per-invoice sales tax detail from the tax engine",
		},
		Fields: []core.FieldSpec{
			{Name: "Transaction ID", Type: core.FieldText, Required: true},
			{Name: "Customer ID", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "Customer Name", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "Invoice Date", Type: core.FieldDate, Required: false, AllowEmpty: true},
			{Name: "Tax Date", Type: core.FieldDate, Required: false, AllowEmpty: true},
			{Name: "Transaction Currency", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "Sales Amount", Type: core.FieldNumeric, Required: true},
			{Name: "Exempt Reasons", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "Tax Amount", Type: core.FieldNumeric, Required: true},
			{Name: "Invoice Amount", Type: core.FieldNumeric, Required: false, AllowEmpty: true},
			{Name: "Void", Type: core.FieldBool, Required: false, AllowEmpty: true},
			{Name: "Customer Address City", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "Customer Address Region", Type: core.FieldText, Required: false, AllowEmpty: true, Normalizer: NormalizeUsState},
			{Name: "Customer Address Postal Code", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "Customer Address Country", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "Jurisdictions", Type: core.FieldText, Required: false, AllowEmpty: true},
		},
		Aliases: aliasMap(map[string][]string{
			"Transaction ID":               {"Txn ID"},
			"Customer ID":                  {"Cust ID"},
			"Invoice Date":                 {"Inv Date"},
			"Transaction Currency":         {"Currency"},
			"Sales Amount":                 {"Sale Amount"},
			"Tax Amount":                   {"Total Tax"},
			"Void":                         {"Voided"},
			"Customer Address Region":      {"Region", "State"},
			"Customer Address Postal Code": {"Postal Code", "Zip", "Zip Code"},
			"Customer Address Country":     {"Country"},
		}),
	})
}
