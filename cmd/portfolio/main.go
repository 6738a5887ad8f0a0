// Command portfolio はポートフォリオサイトのAPIサーバーと管理用サブコマンドを提供する。
//
// 使い方:
//
//	portfolio [serve|migrate|create-admin|seed|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/portfolio/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "portfolio: %v\n", err)
		os.Exit(1)
	}
}
