package detect

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverOneShot(t *testing.T) {
	mock, p := newProcessorMock(t)

	mock.ExpectQuery("FROM threshold_rules a").
		WillReturnRows(sqlmock.NewRows(jobColumns))

	d := NewDriver(p, 0, p.logger)
	require.NoError(t, d.Run(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverOneShotListFailure(t *testing.T) {
	mock, p := newProcessorMock(t)

	mock.ExpectQuery("FROM threshold_rules a").
		WillReturnError(errors.New("connection refused"))

	d := NewDriver(p, 0, p.logger)
	assert.Error(t, d.Run(context.Background()))
}
