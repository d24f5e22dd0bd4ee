package postgres

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"

	"github.com/B1zn3/SearchWork-Website/internal/apperr"
)

var (
	// ErrJobNotFound is returned when an application references a job that
	// does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobHasApplications blocks deleting a job that still has applications.
	ErrJobHasApplications = errors.New("job has applications")

	// ErrStatusTransition is returned when an application is no longer in a
	// state that accepts the requested status.
	ErrStatusTransition = errors.New("status transition not allowed")
)

// mapDBError converts constraint violations reported by PostgreSQL into
// application errors. Other errors are returned unchanged.
func mapDBError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch string(pqErr.Code) {
	case pgerrcode.ForeignKeyViolation:
		return apperr.ForeignKey("связанная запись не найдена", err)
	case pgerrcode.UniqueViolation:
		return apperr.Wrap(err, apperr.CodeConflict, "запись уже существует")
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation, pgerrcode.StringDataRightTruncationDataException:
		return apperr.Wrap(err, apperr.CodeValidation, "недопустимое значение поля")
	}

	return err
}
