package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTally(t *testing.T) {
	tests := []struct {
		name  string
		votes []string
		want  string
	}{
		{"unanimous guilty", []string{VoteGuilty, VoteGuilty, VoteGuilty}, VoteGuilty},
		{"majority guilty", []string{VoteGuilty, VoteNotGuilty, VoteGuilty}, VoteGuilty},
		{"majority not guilty", []string{VoteNotGuilty, VoteGuilty, VoteNotGuilty}, VoteNotGuilty},
		{"even split", []string{VoteGuilty, VoteNotGuilty}, VerdictHung},
		{"no votes", nil, VerdictHung},
		{"malformed votes ignored", []string{VoteGuilty, "Abstain", "guilty"}, VoteGuilty},
		{"all malformed", []string{"Abstain", "???"}, VerdictHung},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			votes := make(map[string]Vote, len(tt.votes))
			for i, v := range tt.votes {
				votes[string(rune('A'+i))] = Vote{Vote: v}
			}
			assert.Equal(t, tt.want, Tally(votes))
		})
	}
}
