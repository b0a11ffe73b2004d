package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"galactrl/device"
)

func sendCmd() *cobra.Command {
	var (
		addr     string
		action   string
		value    int64
		count    int
		interval time.Duration
		oneShot  bool
		greeting bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send peak signals to a running control server (device simulator)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second+time.Duration(count)*interval)
			defer cancel()
			out := cmd.OutOrStdout()

			if oneShot {
				for i := 0; i < count; i++ {
					code, body, err := device.PostPeak(ctx, nil, addr, action, value)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%d %s\n", code, body)
					time.Sleep(interval)
				}
				return nil
			}

			d, err := device.DialDuplex(ctx, addr, greeting)
			if err != nil {
				return err
			}
			defer d.Close()
			for i := 0; i < count; i++ {
				ack, err := d.Send(action, value)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, ack)
				time.Sleep(interval)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", "127.0.0.1:3030", "control server address")
	f.StringVar(&action, "action", "shoot", "right, left or shoot")
	f.Int64Var(&value, "value", 800, "peak value")
	f.IntVar(&count, "count", 1, "number of signals")
	f.DurationVar(&interval, "interval", 100*time.Millisecond, "delay between signals")
	f.BoolVar(&oneShot, "http", false, "use one-shot HTTP requests instead of the duplex channel")
	f.BoolVar(&greeting, "greeting", true, "expect a greeting frame after connecting (false for servers started with an empty greeting)")
	return cmd
}
