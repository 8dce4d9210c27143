package neat

import (
	"fmt"
	"math"
)

// ActivationFunc maps a neuron's accumulated input to its output.
type ActivationFunc func(x float64) float64

// ActivationFunctions maps function names to the actual activation functions.
// This allows configuration to specify activations by name.
var ActivationFunctions = map[string]ActivationFunc{
	"bipolar_sigmoid": BipolarSigmoid,
	"sigmoid":         Sigmoid,
	"tanh":            Tanh,
	"relu":            ReLU,
	"identity":        Identity,
	"clamped":         Clamped,
	"gaussian":        Gaussian,
}

// DefaultActivation is the activation used when none is configured.
var DefaultActivation ActivationFunc = BipolarSigmoid

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationFunc, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// BipolarSigmoid is the steepened sigmoid scaled to (-1, 1):
// f(x) = 2/(1+e^(-4.9x)) - 1.
func BipolarSigmoid(x float64) float64 {
	return 2.0/(1.0+math.Exp(-4.9*x)) - 1.0
}

// Sigmoid is the steepened logistic function 1/(1+e^(-4.9x)).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-4.9*x))
}

// Tanh activation function.
func Tanh(x float64) float64 {
	return math.Tanh(x)
}

// ReLU activation function.
func ReLU(x float64) float64 {
	return math.Max(0, x)
}

// Identity activation function.
func Identity(x float64) float64 {
	return x
}

// Clamped limits x to [-1, 1].
func Clamped(x float64) float64 {
	return math.Max(-1.0, math.Min(1.0, x))
}

// Gaussian activation function.
func Gaussian(x float64) float64 {
	x = math.Max(-3.4, math.Min(3.4, x))
	return math.Exp(-5.0 * x * x)
}
