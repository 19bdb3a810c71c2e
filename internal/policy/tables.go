// Package policy implements the governance tables for manual document
// maintenance: which collections may be touched at all and how each field
// name is classified.
package policy

// Collection is an allowlisted collection with its console display name.
type Collection struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Tables holds the raw governance tables. All matching against them is
// exact string membership; the tables are data so they can be tested and
// overridden independently of the matching logic.
type Tables struct {
	// Readonly fields may never be edited: primary keys, tenant scoping,
	// system-generated sequence numbers, creation metadata.
	Readonly []string `yaml:"readonly"`
	// Denormalized fields are copies from another collection kept for
	// display; editing them does not propagate to the source of truth.
	Denormalized []string `yaml:"denormalized"`
	// Calculated fields are derived totals that some other process
	// recomputes.
	Calculated []string `yaml:"calculated"`
	// References maps a field name to the collection its value must point
	// into.
	References map[string]string `yaml:"references"`
	// Allowed lists the collections editable through the console.
	Allowed []Collection `yaml:"allowed"`
	// Denied lists collections that must never be edited manually.
	// Denial takes precedence over the allowlist.
	Denied []string `yaml:"denied"`
}

// DefaultTables returns the production governance tables.
func DefaultTables() Tables {
	return Tables{
		Readonly: []string{
			"id",
			"created_at",
			"created_by",
			"empresa_id", // tenant scope, never changes
			"grupo_id",   // tenant scope, never changes
			"said_emb_id",
			"lanc_roca_id",
			"rom_no",
			"vend_id",
			"ped_id",
			"cheq_id",
		},
		Denormalized: []string{
			"pessoa_nome",
			"pess_nome",
			"prod_descricao",
			"prod_descricao_completa",
			"destino_nome",
			"origem_nome",
			"motorista_nome",
			"empresa_nome",
			"clas_descricao",
			"uni_descricao",
			"embalagem_nome",
			"forma_pagamento_descricao",
			"tipo_cheque_descricao",
			"conta_descricao",
		},
		Calculated: []string{
			"vend_valor_total",
			"vend_valor_liquido",
			"rom_valor_total",
			"said_emb_valor_total",
			"lanc_roca_valor_total",
			"esto_qtde_atual",
			"esto_qtde_disponivel",
			"esto_qtde_reservada",
			"cheq_valor_total",
			"lanc_fin_valor",
			"subtotal",
			"total_itens",
			"total_quantidade",
		},
		References: map[string]string{
			"pessoa_id":          "pessoas",
			"produtor_id":        "pessoas",
			"motorista_id":       "pessoas",
			"destinatario_id":    "pessoas",
			"prod_id":            "produtos",
			"produto_id":         "produtos",
			"clas_id":            "classificacoes",
			"uni_id":             "unidades",
			"embalagem_id":       "produtos",
			"forma_pagamento_id": "formas_pagamento",
			"tipo_cheque_id":     "tipos_cheque",
			"conta_id":           "contas",
		},
		Allowed: []Collection{
			{ID: "vendas", Name: "Vendas"},
			{ID: "romaneios", Name: "Romaneios"},
			{ID: "lancamentos_roca", Name: "Lançamentos Roça"},
			{ID: "regua", Name: "Réguas"},
			{ID: "estoque_embalagem", Name: "Estoque Embalagem"},
			{ID: "historico_movimentacoes", Name: "Histórico Movimentações"},
			{ID: "saidas_embalagens", Name: "Saídas Embalagens"},
			{ID: "cheques", Name: "Cheques"},
			{ID: "lancamentos_financeiros", Name: "Lançamentos Financeiros"},
			{ID: "pessoas", Name: "Pessoas"},
			{ID: "produtos", Name: "Produtos"},
			{ID: "ordem_carga", Name: "Ordem de Carga"},
			{ID: "pedidos", Name: "Pedidos"},
		},
		Denied: []string{
			"usuarios",
			"empresas",
			"grupos_empresas",
			"auditoria", // audit log is append-only, never hand-edited
			"permissoes_granulares",
			"modulos",
			"configuracoes",
		},
	}
}
