package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"songvault/config"
	"songvault/database"
	"songvault/logger"
	"songvault/web"
	"songvault/web/service"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"
	"github.com/spf13/cobra"
)

func initLogger() {
	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatal("unknown log level:", config.GetLogLevel())
	}
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	initLogger()

	if err := database.InitDB(config.GetDBPath()); err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := database.CloseDB(); err != nil {
			logger.Warning("close db err:", err)
		}
		logger.CloseLogger()
	}()

	if err := os.MkdirAll(config.GetUploadFolder(), 0o750); err != nil {
		log.Fatal(err)
	}

	server := web.NewServer()
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	for {
		select {
		case <-server.GetCtx().Done():
			// listener died underneath us
			return
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				logger.Info("reloading web server")
				if err := server.Stop(); err != nil {
					logger.Warning("stop server err:", err)
				}
				server = web.NewServer()
				if err := server.Start(); err != nil {
					log.Println(err)
					return
				}
			default:
				if err := server.Stop(); err != nil {
					logger.Warning("stop server err:", err)
				}
				return
			}
		}
	}
}

func migrateDatabase() {
	if err := database.InitDB(config.GetDBPath()); err != nil {
		fmt.Println("migrate failed:", err)
		return
	}
	defer database.CloseDB()
	fmt.Println("database migrated:", config.GetDBPath())
}

func showSetting() {
	if err := database.InitDB(config.GetDBPath()); err != nil {
		fmt.Println(err)
		return
	}
	defer database.CloseDB()

	settingService := service.SettingService{}
	settings, err := settingService.GetAllSetting()
	if err != nil {
		fmt.Println("get settings failed:", err)
		return
	}
	port, err := settingService.GetPort()
	if err != nil {
		fmt.Println("get current port failed:", err)
		return
	}
	fmt.Println("port:", port)
	for _, setting := range settings {
		if setting.Key == "secret" || setting.Key == "spotifyClientSecret" {
			continue
		}
		fmt.Printf("%s: %s\n", setting.Key, setting.Value)
	}
}

func updateSetting(port int, csrfEnable string) {
	if err := database.InitDB(config.GetDBPath()); err != nil {
		fmt.Println(err)
		return
	}
	defer database.CloseDB()

	settingService := service.SettingService{}
	if port > 0 {
		if err := settingService.SetPort(port); err != nil {
			fmt.Println("set port failed:", err)
		} else {
			fmt.Println("web port set to", port)
		}
	}
	if csrfEnable != "" {
		enable, err := strconv.ParseBool(csrfEnable)
		if err != nil {
			fmt.Println("invalid csrf value:", csrfEnable)
			return
		}
		if err := settingService.SetCSRFEnable(enable); err != nil {
			fmt.Println("set csrf failed:", err)
		} else {
			fmt.Println("csrf protection set to", enable)
		}
	}
}

func resetSetting() {
	if err := database.InitDB(config.GetDBPath()); err != nil {
		fmt.Println(err)
		return
	}
	defer database.CloseDB()

	settingService := service.SettingService{}
	if err := settingService.ResetSettings(); err != nil {
		fmt.Println("reset setting failed:", err)
	} else {
		fmt.Println("reset setting success")
	}
}

func main() {
	_ = godotenv.Load()

	var (
		showFlag, resetFlag bool
		portFlag            int
		csrfFlag            string
	)

	rootCmd := &cobra.Command{
		Use:   "songvault",
		Short: "Song Vault web application",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or migrate the database",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDatabase()
		},
	}

	settingCmd := &cobra.Command{
		Use:   "setting",
		Short: "Show or reset application settings",
		Run: func(cmd *cobra.Command, args []string) {
			if resetFlag {
				resetSetting()
			}
			if portFlag > 0 || csrfFlag != "" {
				updateSetting(portFlag, csrfFlag)
			}
			if showFlag {
				showSetting()
			}
			if !resetFlag && !showFlag && portFlag == 0 && csrfFlag == "" {
				_ = cmd.Help()
			}
		},
	}
	settingCmd.Flags().BoolVar(&showFlag, "show", false, "show current settings")
	settingCmd.Flags().BoolVar(&resetFlag, "reset", false, "reset all settings to defaults")
	settingCmd.Flags().IntVar(&portFlag, "port", 0, "set web port")
	settingCmd.Flags().StringVar(&csrfFlag, "csrf", "", "enable or disable csrf protection (true/false)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.GetVersion())
		},
	}

	rootCmd.AddCommand(runCmd, migrateCmd, settingCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
