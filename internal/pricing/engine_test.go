package pricing

import (
	"testing"

	"github.com/wolfman30/telecare-platform/internal/insurance"
)

func TestComputeTotal(t *testing.T) {
	engine := NewEngine(200)

	tests := []struct {
		name string
		base int64
		elig insurance.Result
		want int64
	}{
		{"in network ignores base price", 12000, insurance.Result{Status: insurance.StatusInNetwork, CopayCents: 2500}, 2500},
		{"in network ignores huge base price", 999900, insurance.Result{Status: insurance.StatusInNetwork, CopayCents: 2500}, 2500},
		{"not submitted is self pay", 12000, insurance.NotSubmitted(), 12200},
		{"out of network", 12000, insurance.Result{Status: insurance.StatusOutOfNetwork}, 12200},
		{"requires preauth", 12000, insurance.Result{Status: insurance.StatusRequiresPreauth}, 12200},
		{"pending treated as unresolved", 9500, insurance.Result{Status: insurance.StatusPending}, 9700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.ComputeTotal(tt.base, tt.elig); got != tt.want {
				t.Errorf("ComputeTotal(%d, %s) = %d, want %d", tt.base, tt.elig.Status, got, tt.want)
			}
		})
	}
}

func TestComputeTotalIsPure(t *testing.T) {
	engine := NewEngine(200)
	elig := insurance.Result{Status: insurance.StatusInNetwork, CopayCents: 2500}

	first := engine.ComputeTotal(12000, elig)
	for i := 0; i < 5; i++ {
		if got := engine.ComputeTotal(12000, elig); got != first {
			t.Fatalf("call %d returned %d, want %d", i, got, first)
		}
	}
}
