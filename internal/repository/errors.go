// Package repository contains the data access layer. Sentinel errors let
// handlers distinguish failure scenarios and map them to HTTP codes without
// inspecting SQL errors.
package repository

import "errors"

// ErrShowNotFound indicates the referenced show does not exist.
var ErrShowNotFound = errors.New("show not found")

// ErrFilmNotFound indicates the referenced film does not exist.
var ErrFilmNotFound = errors.New("film not found")

// ErrReportNotFound indicates the referenced cash report does not exist.
var ErrReportNotFound = errors.New("cash report not found")

// ErrOpenReportExists is returned when opening a report while another one is
// still open anywhere in the system. The drawer is one physical till, so
// this is a hard conflict regardless of which show is targeted.
var ErrOpenReportExists = errors.New("another cash report is still open")

// ErrShowHasReport is returned when an operation requires the show to have
// no cash report: a second opening for the same show, or deleting a show
// whose drawer history must be kept.
var ErrShowHasReport = errors.New("show already has a cash report")

// ErrReportClosed is returned when closing a report that already reached its
// terminal state.
var ErrReportClosed = errors.New("cash report already closed")

// ErrWithdrawalNotFound indicates a referenced withdrawal does not exist or
// is already linked to a different deposit.
var ErrWithdrawalNotFound = errors.New("withdrawal not found or already deposited")

// ErrForbidden is returned when the caller is not allowed to act on a
// resource owned by someone else. Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")
