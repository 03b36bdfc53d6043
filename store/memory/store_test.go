package memory_test

import (
	"testing"

	"github.com/xraph/custody/store"
	"github.com/xraph/custody/store/memory"
	"github.com/xraph/custody/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return memory.New() })
}
