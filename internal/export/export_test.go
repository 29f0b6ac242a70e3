package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrNAFallsBackForEmptyString(t *testing.T) {
	assert.Equal(t, "N/A", orNA(""))
	assert.Equal(t, "Postgres", orNA("Postgres"))
}

func TestTitleCaseCapitalizesFirstLetter(t *testing.T) {
	assert.Equal(t, "Assistant", titleCase("assistant"))
	assert.Equal(t, "", titleCase(""))
}
