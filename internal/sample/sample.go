/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package sample holds the Person, Dog and Tag models in the form the code
// generator emits for each model: a standalone struct, a proxy embedding
// proxy.Base, and a handler registered from init.
package sample

import (
	"fmt"

	"github.com/suparena/proxystore/errors"
	"github.com/suparena/proxystore/proxy"
)

func unexpectedModel(want proxy.ModelType, obj proxy.Model) error {
	return errors.NewValidationError("object",
		fmt.Sprintf("%T is not a %s model", obj, want))
}
