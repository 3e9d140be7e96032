// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package core

import "context"

// Notifier receives notifications about successful store operations.
//
// resource is the singular resource name, e.g. "contact". payload is the JSON
// representation of the stored entity. Notifications are best effort: callers
// log a returned error and carry on.
type Notifier interface {
	Notify(ctx context.Context, resource string, operation Operation, payload []byte) error
}
