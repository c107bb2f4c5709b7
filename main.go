// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/serverless/standalone/cmd/serverless"

func main() {
	cmd.Execute()
}
