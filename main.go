package main

import (
	"fmt"

	"github.com/nimbus-silo/gateway/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Println(err.Error())
		return
	}
}
