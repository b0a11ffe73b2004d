package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// 构建时注入
var (
	version = "dev"
	commit  = "none"
)

// galactrl 入口：serve 启动控制服务与游戏循环，send 模拟设备发送信号
func main() {
	rootCmd := &cobra.Command{
		Use:           "galactrl",
		Short:         "Remote control server for the arcade shooter",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		serveCmd(),
		sendCmd(),
		versionCmd(),
	)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
