// loom-worker serves a loom execution worker over HTTP. Point a Session's
// RemoteWorkers option at the advertised URLs of a set of loom-worker
// processes to distribute computations across them.
//
// Flags may also be supplied as environment variables with a LOOM_
// prefix, e.g. LOOM_ADDR=:9105.
package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/loomdata/loom/cluster"
	_ "github.com/loomdata/loom/datasource/file"
	_ "github.com/loomdata/loom/datasource/parser/csv"
	_ "github.com/loomdata/loom/datasource/parser/jsonl"
)

func main() {
	flag.String("addr", ":9105", "Address to listen on")
	flag.String("advertise", "", "Base URL peers and coordinators reach this worker at (defaults to http://localhost<addr>)")
	flag.Int("cache-size", 1024, "Unpinned result entries to retain in memory")
	flag.Duration("rpc-timeout", 30*time.Second, "Timeout for fetches from peer workers")
	flag.BoolP("verbose", "v", false, "Enable debug logging")
	flag.Parse()

	viper.SetEnvPrefix("loom")
	viper.AutomaticEnv()
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		log.Fatal(err)
	}

	if viper.GetBool("verbose") {
		log.SetLevel(log.DebugLevel)
	}

	addr := viper.GetString("addr")
	advertise := viper.GetString("advertise")
	if advertise == "" {
		advertise = "http://localhost" + addr
	}
	ws, err := cluster.NewWorkerServer(&cluster.WorkerServerOptions{
		AdvertiseURL: advertise,
		CacheSize:    viper.GetInt("cache-size"),
		RPCTimeout:   viper.GetDuration("rpc-timeout"),
	})
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{Addr: addr, Handler: ws}
	done := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		_ = srv.Close()
		close(done)
	}()
	log.WithField("addr", addr).WithField("advertise", advertise).Info("worker listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
	<-done
}
