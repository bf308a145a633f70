// Package validation validates configuration structs through
// go-playground/validator tags and hand-checked request input through a
// chainable Validator. Both report *errors.AppError with per-field details.
package validation
