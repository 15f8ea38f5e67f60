package project

import (
	"errors"
	"testing"

	"github.com/traklabs/trak/internal/auth"
)

func TestEvaluateInvolvement(t *testing.T) {
	tests := []struct {
		name    string
		inv     *Involvement
		minRank int
		wantErr error
	}{
		{"no involvement row", nil, 0, auth.ErrNotInvolved},
		{"no involvement row with min rank", nil, RankEditor, auth.ErrNotInvolved},
		{"member admitted for view", &Involvement{UID: 1, PID: 2, Rank: RankMember}, RankMember, nil},
		{"member denied for edit", &Involvement{UID: 1, PID: 2, Rank: RankMember}, RankEditor, auth.ErrInsufficientRank},
		{"editor admitted at boundary", &Involvement{UID: 1, PID: 2, Rank: RankEditor}, RankEditor, nil},
		{"manager admitted for edit", &Involvement{UID: 1, PID: 2, Rank: RankManager}, RankEditor, nil},
		{"editor denied for administer", &Involvement{UID: 1, PID: 2, Rank: RankEditor}, RankManager, auth.ErrInsufficientRank},
		{"zero min admits any rank", &Involvement{UID: 1, PID: 2, Rank: RankMember}, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EvaluateInvolvement(tt.inv, tt.minRank)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("EvaluateInvolvement() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
