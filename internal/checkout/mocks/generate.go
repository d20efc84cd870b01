// Package mocks holds gomock implementations of the checkout collaborators.
package mocks

//go:generate mockgen -destination=mock_publisher.go -package=mocks storefront/internal/checkout Publisher
