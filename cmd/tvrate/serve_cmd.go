package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/tvrate/internal/api"
	"github.com/John-Robertt/tvrate/internal/config"
	"github.com/John-Robertt/tvrate/internal/logging"
)

func newServeCommand(gf *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "以 HTTP JSON 服务提供报告查询",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf(cmd, "serve 不接受位置参数：%q", args)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadRuntime(cmd, gf, func(cli *config.CLIArgs) {
				cli.ServeAddr = addr
				cli.ServeAddrSet = cmd.Flags().Changed("addr")
			})
			if err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			if d.eff.LogLevel == "debug" || d.eff.LogLevel == "trace" {
				gin.SetMode(gin.DebugMode)
			}
			log := logging.Component(d.log, "api")
			return api.Serve(cmd.Context(), d.eff.ServeAddr, api.NewRouter(d.service, log), log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "监听地址（默认 "+config.DefaultServeAddr+"）")
	return cmd
}
