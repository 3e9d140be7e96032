// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package notify implements notifiers for entity changes.

A notifier receives the resource name, the operation and the JSON payload of
the changed entity. The mail notifier reacts to new contacts only, the kafka
notifier publishes every change it is handed. Multi fans out to several
notifiers.
*/
package notify

import (
	"context"
	"errors"

	"github.com/relabs-tech/folio/core"
)

// Multi is a notifier which calls all its notifiers in order. Errors are
// collected, a failing notifier does not stop the others.
type Multi []core.Notifier

var _ core.Notifier = Multi{}

// Notify calls every notifier
func (m Multi) Notify(ctx context.Context, resource string, operation core.Operation, payload []byte) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, resource, operation, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop is a notifier which does nothing
type Nop struct{}

// Notify does nothing
func (Nop) Notify(ctx context.Context, resource string, operation core.Operation, payload []byte) error {
	return nil
}
