package main

import "github.com/openshift-assisted/ansible-receipts/cmd/receipts/cmd"

func main() {
	cmd.Execute()
}
