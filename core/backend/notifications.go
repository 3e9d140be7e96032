// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/relabs-tech/folio/core"
	"github.com/relabs-tech/folio/core/logger"
)

// Notification is a single best-effort side effect of a successful write
type Notification struct {
	Resource  string
	Operation core.Operation
	Payload   []byte
}

func callWithPanicEnvelope(ctx context.Context, notifier core.Notifier, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from panic: %v", r)
		}
	}()
	return notifier.Notify(ctx, n.Resource, n.Operation, n.Payload)
}

// notify dispatches v to the notifier in its own go-routine. The request
// context is detached so the notification outlives the response, and bounded
// by the notify timeout. Failures are logged and never retried.
func (b *Backend) notify(ctx context.Context, resource string, operation core.Operation, v interface{}) {
	rlog := logger.FromContext(ctx)
	payload, err := json.Marshal(v)
	if err != nil {
		rlog.WithError(err).Errorf("Error 4301: cannot marshal %s notification", resource)
		return
	}
	n := Notification{Resource: resource, Operation: operation, Payload: payload}

	b.notifications.Add(1)
	go func() {
		defer b.notifications.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.notifyTimeout)
		defer cancel()
		if err := callWithPanicEnvelope(ctx, b.notifier, n); err != nil {
			rlog.WithError(err).Errorf("Error 4302: %s %s notification failed", n.Resource, n.Operation)
			return
		}
		rlog.Debugf("%s %s notification sent", n.Resource, n.Operation)
	}()
}
