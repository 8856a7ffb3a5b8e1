/*package error contains simple functions for reporting fatal hexatic errors.
*/
package error

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// exit is replaced in tests.
var exit = os.Exit

// External reports an error and kills the program. It should be used when
// an error is something a user could reasonably be expected to fix through
// changes in configuration/data/environment. It has the same signature as
// the standard fmt.*printf() functions.
func External(format string, a ...interface{}) {
	logrus.WithField("kind", "external").Errorf(
		"hexatic exited early with the following error:\n" + format, a...)
	exit(1)
}

// Internal reports an error along with a stack trace and kills the program.
// It should be used when the error requires a code dive to fix.
func Internal(format string, a ...interface{}) {
	logrus.WithFields(logrus.Fields{
		"kind": "internal", "stack": string(debug.Stack()),
	}).Errorf("hexatic exited early with the following error:\n" +
		format, a...)
	exit(1)
}

// Check calls External with the error's message if err is non-nil. context
// describes what was being done when the error happened.
func Check(err error, context string, a ...interface{}) {
	if err == nil { return }
	External("%s: %s", fmt.Sprintf(context, a...), err.Error())
}
