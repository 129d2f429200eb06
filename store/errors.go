package store

import "errors"

var ErrShipped = errors.New("order is already shipped")
