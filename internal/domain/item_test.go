package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestItemValidate(t *testing.T) {
	t.Parallel()

	valid := Item{
		ID:             uuid.New(),
		Difficulty:     -0.5,
		Discrimination: 1.2,
		Guessing:       0.2,
		CompetencyTag:  "algebra",
	}

	testCases := []struct {
		name    string
		mutate  func(*Item)
		wantErr error
	}{
		{name: "valid item", mutate: func(*Item) {}},
		{name: "nil ID", mutate: func(i *Item) { i.ID = uuid.Nil }, wantErr: ErrItemIDEmpty},
		{name: "zero discrimination", mutate: func(i *Item) { i.Discrimination = 0 }, wantErr: ErrItemDiscriminationInvalid},
		{name: "negative discrimination", mutate: func(i *Item) { i.Discrimination = -1 }, wantErr: ErrItemDiscriminationInvalid},
		{name: "negative guessing", mutate: func(i *Item) { i.Guessing = -0.1 }, wantErr: ErrItemGuessingInvalid},
		{name: "guessing of one", mutate: func(i *Item) { i.Guessing = 1.0 }, wantErr: ErrItemGuessingInvalid},
		{name: "zero guessing is fine", mutate: func(i *Item) { i.Guessing = 0 }},
		{name: "missing competency tag", mutate: func(i *Item) { i.CompetencyTag = "" }, wantErr: ErrItemCompetencyEmpty},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			item := valid
			tc.mutate(&item)

			err := item.Validate()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
