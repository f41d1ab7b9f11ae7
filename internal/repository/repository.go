// Package repository defines how the client reaches car records.
//
// The interface lives here and the implementation lives in a sub-package
// (httpapi). Code that needs cars depends only on CarRepository, so tests can
// hand it a fake and the service never learns it is talking HTTP.
package repository

import (
	"context"

	"github.com/sakif/car-listing/internal/model"
)

// CarRepository is the cars REST API as the client sees it. Every method
// reports failures as *apperror.AppError: ErrTransport when the API could not
// be reached, ErrNotFound for 404 and ErrUpstream for any other non-2xx.
type CarRepository interface {
	List(ctx context.Context) ([]model.Car, error)
	GetByID(ctx context.Context, id int64) (model.Car, error)
	Create(ctx context.Context, in model.CarInput) (model.Car, error)
	Update(ctx context.Context, id int64, in model.CarInput) (model.Car, error)
	Delete(ctx context.Context, id int64) error
}
