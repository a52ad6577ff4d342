package memory_test

import (
	"testing"

	"github.com/aretw0/shindan/pkg/adapters/memory"
	contract "github.com/aretw0/shindan/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	contract.SessionStoreContractTest(t, memory.NewStore())
}
