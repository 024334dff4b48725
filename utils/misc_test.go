package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mbltya/cinebook/entities"
)

func TestGetCinemaName(t *testing.T) {
	cinemas := []entities.Cinema{
		{ID: 1, Name: "Odeon"},
		{ID: 2, Name: "Arcadia"},
	}
	assert.Equal(t, "Arcadia", GetCinemaName(2, cinemas))
	assert.Equal(t, "", GetCinemaName(9, cinemas))
}

func TestGetMovieTitle(t *testing.T) {
	movies := []entities.Movie{
		{ID: 1, Title: "Dune"},
	}
	assert.Equal(t, "Dune", GetMovieTitle(1, movies))
	assert.Equal(t, "", GetMovieTitle(2, movies))
}
