package lifecycle

import "fmt"

// FaultKind classifies a rejected operation. Callers branch on the kind; the
// message is what reaches the user.
type FaultKind string

const (
	FaultValidation FaultKind = "validacion"
	FaultNoAuth     FaultKind = "no_autenticado"
	FaultForbidden  FaultKind = "no_autorizado"
	FaultState      FaultKind = "estado"
	FaultBudget     FaultKind = "presupuesto"
	FaultDeviation  FaultKind = "desvio"
	FaultNotFound   FaultKind = "no_encontrado"
	FaultInternal   FaultKind = "interno"
)

type Fault struct {
	Kind    FaultKind `json:"kind"`
	Message string    `json:"message"`
}

func (f *Fault) Error() string { return f.Message }

// Result is the tagged outcome every lifecycle operation returns. Business
// rejections never surface as Go errors past this boundary; callers check
// Success and read either Data or Fault. Budget and deviation faults are
// retryable: the caller re-invokes with the acknowledgement flag set.
type Result[T any] struct {
	Success bool
	Data    T
	Fault   *Fault
}

func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func Fail[T any](kind FaultKind, format string, args ...any) Result[T] {
	return Result[T]{Fault: &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

func FailWith[T any](f *Fault) Result[T] {
	return Result[T]{Fault: f}
}
