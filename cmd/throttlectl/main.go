// throttlectl 限流网关命令行：查看桶、估算权重、本地压测
package main

import (
	"os"

	"github.com/KOMKZ/go-yogan-throttle/logger"
)

func main() {
	err := newRootCmd().Execute()
	logger.CloseAll()
	if err != nil {
		os.Exit(1)
	}
}
