// Package settings persists user choices between sessions as small JSON
// documents: one for the queue converter and one for the speech tool.
package settings
