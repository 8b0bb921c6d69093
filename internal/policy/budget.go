package policy

// BudgetCheck is the outcome of the approval gate for one order.
type BudgetCheck struct {
	Presupuesto  float64
	Comprometido float64
	Total        float64
	Excedente    float64
}

func (b BudgetCheck) Excedido() bool { return b.Excedente > 0 }

// EvaluateApproval sums the committed cost of the rubro's sibling orders with
// this order's own estimate and compares against the presupuesto.
func EvaluateApproval(presupuesto, comprometido, propio float64) BudgetCheck {
	total := comprometido + propio
	check := BudgetCheck{
		Presupuesto:  presupuesto,
		Comprometido: comprometido,
		Total:        total,
	}
	if total > presupuesto {
		check.Excedente = total - presupuesto
	}
	return check
}

// DeviationCheck is the outcome of the closure gate.
type DeviationCheck struct {
	CostoEstimado float64
	CostoReal     float64
	Desvio        float64
	Porcentaje    float64
}

func (d DeviationCheck) Desviado() bool { return d.Desvio > 0 }

// EvaluateClose resolves the real cost at closure. When no real cost was ever
// recorded it falls back to the estimate, which reads as "no deviation".
// Porcentaje is 0 when the estimate is 0.
func EvaluateClose(estimado float64, real *float64) DeviationCheck {
	costoReal := estimado
	if real != nil {
		costoReal = *real
	}
	check := DeviationCheck{
		CostoEstimado: estimado,
		CostoReal:     costoReal,
		Desvio:        costoReal - estimado,
	}
	if estimado != 0 {
		check.Porcentaje = check.Desvio / estimado * 100
	}
	return check
}
