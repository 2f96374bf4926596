package proof

import (
	"fmt"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// Circuit names registered by NewProver.
const (
	CircuitSettlement  = "settlement"
	CircuitMintPayment = "mint-payment"
)

// Prover compiles circuits once and generates proofs against them.
type Prover struct {
	mu       sync.RWMutex
	circuits map[string]*compiledCircuit
	curve    ecc.ID
}

type compiledCircuit struct {
	cs constraint.ConstraintSystem
	pk groth16.ProvingKey
	vk groth16.VerifyingKey
}

// NewProver compiles and sets up the settlement and mint-payment circuits.
// Compilation is the expensive step; reuse one prover across proofs.
func NewProver() (*Prover, error) {
	p := &Prover{
		circuits: make(map[string]*compiledCircuit),
		curve:    ecc.BN254,
	}
	if err := p.register(CircuitSettlement, &SettlementCircuit{}); err != nil {
		return nil, err
	}
	if err := p.register(CircuitMintPayment, &MintPaymentCircuit{}); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Prover) register(name string, circuit frontend.Circuit) error {
	cs, err := frontend.Compile(p.curve.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		return fmt.Errorf("proof: compile %s: %w", name, err)
	}
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return fmt.Errorf("proof: setup %s: %w", name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.circuits[name] = &compiledCircuit{cs: cs, pk: pk, vk: vk}
	return nil
}

// Constraints returns the constraint count of a registered circuit.
func (p *Prover) Constraints(name string) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cc, ok := p.circuits[name]
	if !ok {
		return 0, fmt.Errorf("proof: circuit %q not registered", name)
	}
	return cc.cs.GetNbConstraints(), nil
}

// Prove generates and locally verifies a proof for the assignment. An
// assignment that violates the circuit's constraints fails at witness
// solving, so an error here means the claimed arithmetic does not hold.
func (p *Prover) Prove(name string, assignment frontend.Circuit) (groth16.Proof, error) {
	p.mu.RLock()
	cc, ok := p.circuits[name]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("proof: circuit %q not registered", name)
	}

	witness, err := frontend.NewWitness(assignment, p.curve.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("proof: witness: %w", err)
	}
	proof, err := groth16.Prove(cc.cs, cc.pk, witness)
	if err != nil {
		return nil, fmt.Errorf("proof: prove %s: %w", name, err)
	}

	public, err := witness.Public()
	if err != nil {
		return nil, fmt.Errorf("proof: public witness: %w", err)
	}
	if err := groth16.Verify(proof, cc.vk, public); err != nil {
		return nil, fmt.Errorf("proof: verify %s: %w", name, err)
	}
	return proof, nil
}
