package mlp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/localmind-ai/localmind-go/pkg/entity"
)

// SnapshotVersion is the serialization format version of engine snapshots.
const SnapshotVersion int32 = 1

// snapshotMagic marks a payload as an mlp engine snapshot.
const snapshotMagic uint32 = 0x4C4D4E53

// ErrSnapshotMismatch indicates a payload that is not a structurally valid
// snapshot for this engine's topology. Initialize recovers from it by
// falling back to fresh initialization.
var ErrSnapshotMismatch = errors.New("snapshot structure mismatch")

// encodeSnapshot serializes the learning rate, counters, and the full
// parameter tensors. The layout is little endian:
//
//	magic, version, learning rate, trainingSteps, interactionCount,
//	inputSize, hiddenSize, outputSize,
//	weightsIH (row major), biasH, weightsHO (row major), biasO
//
// The full tensors are written so that restoring from the payload
// reproduces identical predictions; truncating them would silently break
// the round-trip contract.
func encodeSnapshot(n *network, trainingSteps, interactionCount int64) (*entity.ModelSnapshot, error) {
	buf := new(bytes.Buffer)

	fields := []interface{}{
		snapshotMagic,
		SnapshotVersion,
		n.learningRate,
		trainingSteps,
		interactionCount,
		int32(n.inputSize),
		int32(n.hiddenSize),
		int32(n.outputSize),
	}
	for _, field := range fields {
		if err := binary.Write(buf, binary.LittleEndian, field); err != nil {
			return nil, fmt.Errorf("encode snapshot: %w", err)
		}
	}

	for _, row := range n.weightsIH {
		if err := binary.Write(buf, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("encode snapshot: %w", err)
		}
	}
	if err := binary.Write(buf, binary.LittleEndian, n.biasH); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	for _, row := range n.weightsHO {
		if err := binary.Write(buf, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("encode snapshot: %w", err)
		}
	}
	if err := binary.Write(buf, binary.LittleEndian, n.biasO); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	return &entity.ModelSnapshot{
		Payload: buf.Bytes(),
		Version: SnapshotVersion,
	}, nil
}

// decodeSnapshot restores a network and counters from a snapshot payload.
//
// Any structural problem (wrong magic, wrong version, dimensions that do not
// match the expected topology, short payload) yields ErrSnapshotMismatch.
func decodeSnapshot(snapshot *entity.ModelSnapshot, wantInput, wantHidden, wantOutput int) (*network, int64, int64, error) {
	if snapshot.Version != SnapshotVersion {
		return nil, 0, 0, fmt.Errorf("%w: version %d", ErrSnapshotMismatch, snapshot.Version)
	}

	buf := bytes.NewReader(snapshot.Payload)

	var magic uint32
	var version int32
	var learningRate float64
	var trainingSteps, interactionCount int64
	var inSize, hiddenSize, outSize int32

	for _, field := range []interface{}{
		&magic, &version, &learningRate, &trainingSteps, &interactionCount,
		&inSize, &hiddenSize, &outSize,
	} {
		if err := binary.Read(buf, binary.LittleEndian, field); err != nil {
			return nil, 0, 0, fmt.Errorf("%w: truncated header", ErrSnapshotMismatch)
		}
	}

	if magic != snapshotMagic {
		return nil, 0, 0, fmt.Errorf("%w: bad magic", ErrSnapshotMismatch)
	}
	if version != SnapshotVersion {
		return nil, 0, 0, fmt.Errorf("%w: payload version %d", ErrSnapshotMismatch, version)
	}
	if int(inSize) != wantInput || int(hiddenSize) != wantHidden || int(outSize) != wantOutput {
		return nil, 0, 0, fmt.Errorf("%w: dimensions %dx%dx%d, want %dx%dx%d",
			ErrSnapshotMismatch, inSize, hiddenSize, outSize, wantInput, wantHidden, wantOutput)
	}

	n := &network{
		inputSize:    int(inSize),
		hiddenSize:   int(hiddenSize),
		outputSize:   int(outSize),
		learningRate: learningRate,
	}

	n.weightsIH = make([][]float64, n.inputSize)
	for i := range n.weightsIH {
		n.weightsIH[i] = make([]float64, n.hiddenSize)
		if err := binary.Read(buf, binary.LittleEndian, n.weightsIH[i]); err != nil {
			return nil, 0, 0, fmt.Errorf("%w: truncated tensors", ErrSnapshotMismatch)
		}
	}
	n.biasH = make([]float64, n.hiddenSize)
	if err := binary.Read(buf, binary.LittleEndian, n.biasH); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: truncated tensors", ErrSnapshotMismatch)
	}
	n.weightsHO = make([][]float64, n.hiddenSize)
	for j := range n.weightsHO {
		n.weightsHO[j] = make([]float64, n.outputSize)
		if err := binary.Read(buf, binary.LittleEndian, n.weightsHO[j]); err != nil {
			return nil, 0, 0, fmt.Errorf("%w: truncated tensors", ErrSnapshotMismatch)
		}
	}
	n.biasO = make([]float64, n.outputSize)
	if err := binary.Read(buf, binary.LittleEndian, n.biasO); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: truncated tensors", ErrSnapshotMismatch)
	}

	return n, trainingSteps, interactionCount, nil
}
