package main

import (
	"github.com/skyhookml/netviz/app"

	"flag"
	"net/http"
	"strings"

	"github.com/googollee/go-socket.io"
	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	addr := flag.String("addr", ":5000", "bind address")
	flag.StringVar(&app.Config.DBPath, "db", app.Config.DBPath, "sqlite3 database holding the asset catalog")
	flag.StringVar(&app.Config.ContentDir, "content", app.Config.ContentDir, "directory where uploaded GLB files are stored")
	flag.StringVar(&app.Config.Python, "python", app.Config.Python, "python interpreter with tensorflow and torch installed")
	flag.StringVar(&app.Config.ScriptDir, "scripts", app.Config.ScriptDir, "directory containing the python helper scripts")
	flag.IntVar(&app.Config.Input.Height, "input-height", app.Config.Input.Height, "height of the assumed model input")
	flag.IntVar(&app.Config.Input.Width, "input-width", app.Config.Input.Width, "width of the assumed model input")
	origins := flag.String("origins", strings.Join(app.Config.AllowedOrigins, ","), "comma-separated origins allowed by CORS")
	flag.Int64Var(&app.Config.MaxUploadBytes, "max-upload", app.Config.MaxUploadBytes, "largest accepted upload in bytes, 0 for no limit")
	flag.Parse()
	defer klog.Flush()

	app.Config.AllowedOrigins = nil
	for _, origin := range strings.Split(*origins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			app.Config.AllowedOrigins = append(app.Config.AllowedOrigins, origin)
		}
	}
	if app.Config.Input.Height <= 0 || app.Config.Input.Width <= 0 {
		klog.Fatalf("input dimensions must be positive, got %dx%d", app.Config.Input.Height, app.Config.Input.Width)
	}

	if err := app.InitDB(app.Config.DBPath); err != nil {
		klog.Fatalf("init db: %v", err)
	}

	server, err := socketio.NewServer(nil)
	if err != nil {
		panic(err)
	}
	for _, f := range app.SetupFuncs {
		f(server)
	}

	go server.Serve()
	defer server.Close()
	http.Handle("/socket.io/", server)
	http.Handle("/", app.Handler())
	klog.Infof("starting on %s (input %dx%d)", *addr, app.Config.Input.Height, app.Config.Input.Width)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		klog.Fatal(err)
	}
}
