package mlp

import (
	"math"
	"math/rand"
)

// network holds the parameter tensors for the fixed 3-layer topology.
//
// All methods are pure computation over the receiver's state; callers are
// responsible for serializing access.
type network struct {
	inputSize  int
	hiddenSize int
	outputSize int

	learningRate float64

	// weightsIH is input -> hidden, indexed [input][hidden].
	weightsIH [][]float64
	// weightsHO is hidden -> output, indexed [hidden][output].
	weightsHO [][]float64
	biasH     []float64
	biasO     []float64
}

// newNetwork creates a network with Xavier-initialized weights.
func newNetwork(inputSize, hiddenSize, outputSize int, learningRate float64, rng *rand.Rand) *network {
	n := &network{
		inputSize:    inputSize,
		hiddenSize:   hiddenSize,
		outputSize:   outputSize,
		learningRate: learningRate,
	}
	n.initWeights(rng)
	return n
}

// initWeights initializes weights with Xavier/Glorot uniform bounds
// ±sqrt(6/(fanIn+fanOut)) and biases with small uniform noise.
func (n *network) initWeights(rng *rand.Rand) {
	limitIH := math.Sqrt(6.0 / float64(n.inputSize+n.hiddenSize))
	limitHO := math.Sqrt(6.0 / float64(n.hiddenSize+n.outputSize))

	n.weightsIH = make([][]float64, n.inputSize)
	for i := 0; i < n.inputSize; i++ {
		n.weightsIH[i] = make([]float64, n.hiddenSize)
		for j := 0; j < n.hiddenSize; j++ {
			n.weightsIH[i][j] = (rng.Float64()*2 - 1) * limitIH
		}
	}

	n.weightsHO = make([][]float64, n.hiddenSize)
	for j := 0; j < n.hiddenSize; j++ {
		n.weightsHO[j] = make([]float64, n.outputSize)
		for k := 0; k < n.outputSize; k++ {
			n.weightsHO[j][k] = (rng.Float64()*2 - 1) * limitHO
		}
	}

	n.biasH = make([]float64, n.hiddenSize)
	for j := range n.biasH {
		n.biasH[j] = (rng.Float64()*2 - 1) * 0.01
	}

	n.biasO = make([]float64, n.outputSize)
	for k := range n.biasO {
		n.biasO[k] = (rng.Float64()*2 - 1) * 0.01
	}
}

// forward runs one forward pass and returns the hidden and output
// activations. Hidden activation is tanh, output activation is the logistic
// sigmoid, so every output lands in (0, 1).
func (n *network) forward(input []float64) (hidden, output []float64) {
	hidden = make([]float64, n.hiddenSize)
	for j := 0; j < n.hiddenSize; j++ {
		sum := n.biasH[j]
		for i := 0; i < n.inputSize; i++ {
			sum += input[i] * n.weightsIH[i][j]
		}
		hidden[j] = math.Tanh(sum)
	}

	output = make([]float64, n.outputSize)
	for k := 0; k < n.outputSize; k++ {
		sum := n.biasO[k]
		for j := 0; j < n.hiddenSize; j++ {
			sum += hidden[j] * n.weightsHO[j][k]
		}
		output[k] = sigmoid(sum)
	}

	return hidden, output
}

// train runs one forward pass, one backward pass, and a gradient-descent
// update in place. Returns the mean squared error of the example, which is
// diagnostic only; the update itself uses the standard backprop gradients.
func (n *network) train(input, target []float64) float64 {
	hidden, output := n.forward(input)

	loss := 0.0
	for k := 0; k < n.outputSize; k++ {
		diff := output[k] - target[k]
		loss += diff * diff
	}
	loss /= float64(n.outputSize)

	// Output deltas: d(MSE)/d(pre-activation) through the sigmoid.
	outputDelta := make([]float64, n.outputSize)
	for k := 0; k < n.outputSize; k++ {
		outputDelta[k] = (output[k] - target[k]) * output[k] * (1 - output[k])
	}

	// Hidden deltas through tanh.
	hiddenDelta := make([]float64, n.hiddenSize)
	for j := 0; j < n.hiddenSize; j++ {
		sum := 0.0
		for k := 0; k < n.outputSize; k++ {
			sum += outputDelta[k] * n.weightsHO[j][k]
		}
		hiddenDelta[j] = sum * (1 - hidden[j]*hidden[j])
	}

	for j := 0; j < n.hiddenSize; j++ {
		for k := 0; k < n.outputSize; k++ {
			n.weightsHO[j][k] -= n.learningRate * outputDelta[k] * hidden[j]
		}
	}
	for k := 0; k < n.outputSize; k++ {
		n.biasO[k] -= n.learningRate * outputDelta[k]
	}

	for i := 0; i < n.inputSize; i++ {
		for j := 0; j < n.hiddenSize; j++ {
			n.weightsIH[i][j] -= n.learningRate * hiddenDelta[j] * input[i]
		}
	}
	for j := 0; j < n.hiddenSize; j++ {
		n.biasH[j] -= n.learningRate * hiddenDelta[j]
	}

	return loss
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
