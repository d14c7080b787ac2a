package service

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var (
	ErrNotFound       = errors.New("not found")
	ErrCategoryExists = errors.New("a category with this name already exists")
	ErrUnknownMonster = errors.New("unknown monster")
	ErrUnlockRefused  = errors.New("monster already unlocked or not enough coins")
)
