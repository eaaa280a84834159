package mocks

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oriole-labs/sitebot-core/internal/core/domain"
)

// MockTaskAuthenticator signs tokens as "signed:<jobID>" and verifies
// that shape. No crypto; tests that need failures set VerifyErr.
type MockTaskAuthenticator struct {
	VerifyErr error
}

func (m *MockTaskAuthenticator) Sign(jobID int64) (string, error) {
	return "signed:" + strconv.FormatInt(jobID, 10), nil
}

func (m *MockTaskAuthenticator) Verify(token string) error {
	if m.VerifyErr != nil {
		return m.VerifyErr
	}
	if !strings.HasPrefix(token, "signed:") {
		return fmt.Errorf("%w: malformed task token", domain.ErrForbidden)
	}
	return nil
}
