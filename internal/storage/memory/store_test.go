package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"accountbook/internal/ledger"
	"accountbook/internal/ledger/ledgertest"
)

func TestStoreSuite(t *testing.T) {
	suite.Run(t, &ledgertest.StoreSuite{
		NewStore: func() (ledger.Store, error) { return New(), nil },
	})
}
