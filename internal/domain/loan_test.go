package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDueDateFor(t *testing.T) {
	loanDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC), DueDateFor(loanDate, 21))
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), DueDateFor(loanDate, 14))
}

func TestLoan_Extend(t *testing.T) {
	loanDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	base := Loan{
		ID:       "loan-1",
		LoanDate: loanDate,
		DueDate:  time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC),
		Status:   LoanStatusActive,
	}

	t.Run("doubles the current window", func(t *testing.T) {
		ext, err := base.Extend()
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC), ext.NewDueDate)
		assert.Equal(t, 1, ext.ExtensionCount)
		assert.Equal(t, 21, ext.OriginalDurationDays())
	})

	t.Run("rejects second extension", func(t *testing.T) {
		loan := base
		loan.ExtensionCount = 1
		_, err := loan.Extend()
		assert.True(t, errors.Is(err, ErrExtensionLimitReached))
	})

	t.Run("rejects returned loan", func(t *testing.T) {
		loan := base
		loan.Status = LoanStatusReturned
		_, err := loan.Extend()
		assert.True(t, errors.Is(err, ErrCannotExtendReturned))
	})
}

func TestIsOverdue(t *testing.T) {
	due := time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC)

	assert.False(t, IsOverdue(LoanStatusActive, due, due), "due instant itself is not overdue")
	assert.True(t, IsOverdue(LoanStatusActive, due, due.Add(time.Second)))
	assert.False(t, IsOverdue(LoanStatusReturned, due, due.Add(48*time.Hour)))
	assert.True(t, IsOverdue(LoanStatusOverdue, due, due.Add(time.Hour)))
}

func TestVolume_Circulates(t *testing.T) {
	tests := []struct {
		name   string
		volume Volume
		want   bool
	}{
		{"available good copy", Volume{Condition: ConditionGood, LoanStatus: VolumeAvailable}, true},
		{"loaned copy still circulates", Volume{Condition: ConditionFair, LoanStatus: VolumeLoaned}, true},
		{"reference only", Volume{Condition: ConditionGood, LoanStatus: VolumeAvailable, ReferenceOnly: true}, false},
		{"damaged", Volume{Condition: ConditionDamaged, LoanStatus: VolumeAvailable}, false},
		{"lost", Volume{Condition: ConditionGood, LoanStatus: VolumeLost}, false},
		{"maintenance", Volume{Condition: ConditionGood, LoanStatus: VolumeMaintenance}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.volume.Circulates())
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(ErrLoanNotFound))
	assert.Equal(t, KindValidation, KindOf(ErrAlreadyReturned))
	assert.Equal(t, KindLimit, KindOf(ErrExtensionLimitReached))
	assert.Equal(t, KindConflict, KindOf(ErrVolumeOnLoan))
	assert.Equal(t, KindNotFound, KindOf(errors.Join(errors.New("lookup"), ErrVolumeNotFound)))
	assert.Equal(t, KindInternal, KindOf(errors.New("connection reset")))
	assert.Equal(t, KindInternal, KindOf(nil))
}
