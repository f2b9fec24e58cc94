// sds011-tool 面向运维的命令行工具：查询与修改传感器状态。
//
//	sds011-tool [-device /dev/ttyUSB0] <command> [args]
//
// 可用命令：
//
//	info                         打印固件版本与当前各项状态
//	query                        主动查询一次读数
//	watch                        持续打印到达的读数
//	set-work-mode <work|sleep>   设置工作状态（-get 仅查询）
//	set-reporting-mode <active|query>
//	set-working-period <0..30>
//	set-device-id <id>
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/taoyao-code/sds011-exporter/internal/logging"
	"github.com/taoyao-code/sds011-exporter/internal/protocol/sds011"
	"github.com/taoyao-code/sds011-exporter/internal/transport"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: sds011-tool [flags] <command> [args]

commands:
  info                              print firmware version and current settings
  query                             request a single reading
  watch                             print readings as they arrive (Ctrl-C to stop)
  set-work-mode [-get] <work|sleep>
  set-reporting-mode [-get] <active|query>
  set-working-period [-get] <0..30>
  set-device-id <id>

flags:
`)
	flag.PrintDefaults()
}

func main() {
	device := flag.String("device", "/dev/ttyUSB0", "serial device path")
	baud := flag.Int("baud", 9600, "baud rate")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	level := zapcore.WarnLevel
	if *verbose {
		level = zapcore.DebugLevel
	}
	log := logging.NewConsoleLogger(level)
	defer func() { _ = log.Sync() }()

	port, err := transport.Open(*device, *baud)
	if err != nil {
		fatal(err)
	}
	defer func() { _ = port.Close() }()

	eng := sds011.Start(port, port, log)
	defer eng.Close()

	retryCfg := sds011.DefaultRetryConfig()

	switch cmd := args[0]; cmd {
	case "info":
		err = runInfo(eng, retryCfg)
	case "query":
		err = runQuery(eng, retryCfg)
	case "watch":
		err = runWatch(eng, log)
	case "set-work-mode":
		err = runSetWorkMode(eng, retryCfg, args[1:])
	case "set-reporting-mode":
		err = runSetReportingMode(eng, retryCfg, args[1:])
	case "set-working-period":
		err = runSetWorkingPeriod(eng, retryCfg, args[1:])
	case "set-device-id":
		err = runSetDeviceID(eng, retryCfg, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "sds011-tool:", err)
	os.Exit(1)
}

// runInfo 逐项查询设备状态并汇总打印
func runInfo(eng *sds011.Engine, cfg sds011.RetryConfig) error {
	fw, _, err := eng.SendAndWait(sds011.NewGetFirmwareVersion(), cfg)
	if err != nil {
		return err
	}
	work, _, err := eng.SendAndWait(sds011.NewSetSleepWork(true, 0), cfg)
	if err != nil {
		return err
	}
	reporting, _, err := eng.SendAndWait(sds011.NewSetReportingMode(true, 0), cfg)
	if err != nil {
		return err
	}
	period, _, err := eng.SendAndWait(sds011.NewSetWorkingPeriod(true, 0), cfg)
	if err != nil {
		return err
	}

	fmt.Printf("device id:       %04X\n", fw.DeviceID)
	fmt.Printf("firmware:        20%02d-%02d-%02d\n", fw.FirmwareYear, fw.FirmwareMonth, fw.FirmwareDay)
	fmt.Printf("work mode:       %s\n", work.Work)
	fmt.Printf("reporting mode:  %s\n", reporting.Reporting)
	fmt.Printf("working period:  %s\n", period.Period)
	return nil
}

func runQuery(eng *sds011.Engine, cfg sds011.RetryConfig) error {
	resp, _, err := eng.SendAndWait(sds011.NewQuery(), cfg)
	if err != nil {
		return err
	}
	printReading(resp)
	return nil
}

// runWatch 持续消费响应流直到传输断开
func runWatch(eng *sds011.Engine, log *zap.Logger) error {
	responses := eng.Responses()
	control := eng.Control()
	for {
		select {
		case resp, ok := <-responses:
			if !ok {
				return fmt.Errorf("response stream closed")
			}
			if resp.Kind == sds011.RespQuery {
				printReading(resp)
			}
		case msg := <-control:
			if msg.Fatal {
				return msg.Err
			}
			log.Warn("sensor warning", zap.Error(msg.Err))
		}
	}
}

func runSetWorkMode(eng *sds011.Engine, cfg sds011.RetryConfig, args []string) error {
	fs := flag.NewFlagSet("set-work-mode", flag.ExitOnError)
	get := fs.Bool("get", false, "query the current value instead of setting it")
	_ = fs.Parse(args)

	var mode sds011.WorkMode
	if !*get {
		var err error
		if mode, err = sds011.ParseWorkMode(fs.Arg(0)); err != nil {
			return err
		}
	}
	resp, _, err := eng.SendAndWait(sds011.NewSetSleepWork(*get, mode), cfg)
	if err != nil {
		return err
	}
	fmt.Printf("work mode: %s\n", resp.Work)
	return nil
}

func runSetReportingMode(eng *sds011.Engine, cfg sds011.RetryConfig, args []string) error {
	fs := flag.NewFlagSet("set-reporting-mode", flag.ExitOnError)
	get := fs.Bool("get", false, "query the current value instead of setting it")
	_ = fs.Parse(args)

	var mode sds011.ReportingMode
	if !*get {
		var err error
		if mode, err = sds011.ParseReportingMode(fs.Arg(0)); err != nil {
			return err
		}
	}
	resp, _, err := eng.SendAndWait(sds011.NewSetReportingMode(*get, mode), cfg)
	if err != nil {
		return err
	}
	fmt.Printf("reporting mode: %s\n", resp.Reporting)
	return nil
}

func runSetWorkingPeriod(eng *sds011.Engine, cfg sds011.RetryConfig, args []string) error {
	fs := flag.NewFlagSet("set-working-period", flag.ExitOnError)
	get := fs.Bool("get", false, "query the current value instead of setting it")
	_ = fs.Parse(args)

	var period sds011.WorkingPeriod
	if !*get {
		var err error
		if period, err = sds011.ParseWorkingPeriod(fs.Arg(0)); err != nil {
			return err
		}
	}
	resp, _, err := eng.SendAndWait(sds011.NewSetWorkingPeriod(*get, period), cfg)
	if err != nil {
		return err
	}
	fmt.Printf("working period: %s\n", resp.Period)
	return nil
}

func runSetDeviceID(eng *sds011.Engine, cfg sds011.RetryConfig, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("set-device-id: missing id argument")
	}
	id, err := strconv.ParseUint(args[0], 0, 16)
	if err != nil {
		return fmt.Errorf("invalid device id %q: %w", args[0], err)
	}
	resp, _, err := eng.SendAndWait(sds011.NewSetDeviceID(uint16(id)), cfg)
	if err != nil {
		return err
	}
	fmt.Printf("device id: %04X\n", resp.DeviceID)
	return nil
}

func printReading(resp sds011.Response) {
	fmt.Printf("pm2.5 %6.1f µg/m³   pm10 %6.1f µg/m³   device %04X\n",
		resp.PM25, resp.PM10, resp.DeviceID)
}
