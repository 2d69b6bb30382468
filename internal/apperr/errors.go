package apperr

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType тип ошибки скрапера
type ErrorType string

const (
	TypeNetwork       ErrorType = "network"
	TypeParsing       ErrorType = "parsing"
	TypeStorage       ErrorType = "storage"
	TypeValidation    ErrorType = "validation"
	TypeConfiguration ErrorType = "configuration"
)

// ScrapeError ошибка с типом и URL, на котором она возникла
type ScrapeError struct {
	Type    ErrorType
	URL     string
	Message string
	Err     error
	// Status HTTP-код ответа, 0 если ответа не было
	Status int
	Time   time.Time
}

func (e *ScrapeError) Error() string {
	target := e.URL
	if target == "" {
		target = "-"
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, target, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, target, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable сетевые ошибки можно повторить, кроме ответов 4xx (429 повторяется)
func (e *ScrapeError) IsRetryable() bool {
	if e.Type != TypeNetwork {
		return false
	}
	if e.Status >= 400 && e.Status < 500 {
		return e.Status == 429
	}
	return true
}

func New(errType ErrorType, url, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		URL:     url,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

func NewNetwork(url, message string, err error) *ScrapeError {
	return New(TypeNetwork, url, message, err)
}

// NewHTTPStatus сетевая ошибка по коду ответа
func NewHTTPStatus(url, message string, status int) *ScrapeError {
	e := New(TypeNetwork, url, message, nil)
	e.Status = status
	return e
}

func NewParsing(url, message string, err error) *ScrapeError {
	return New(TypeParsing, url, message, err)
}

func NewStorage(url, message string, err error) *ScrapeError {
	return New(TypeStorage, url, message, err)
}

func NewValidation(url, message string) *ScrapeError {
	return New(TypeValidation, url, message, nil)
}

func NewConfiguration(message string, err error) *ScrapeError {
	return New(TypeConfiguration, "", message, err)
}

// IsType проверяет тип ошибки в цепочке обёрток
func IsType(err error, errType ErrorType) bool {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Type == errType
	}
	return false
}
