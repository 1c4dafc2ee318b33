package main

import (
	"fmt"
	"math"
	"net/http"
	"os"
	"strings"

	rice "github.com/GeertJohan/go.rice"
	"github.com/gorilla/handlers"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/synacor/namesmith/server"
)

var maxPort = int(math.Pow(2, 16) - 1)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server (the default command)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.Int("port", defaultPort, "port to listen on")
	flags.Bool("debug", false, "log every websocket message")
	viper.BindPFlag("port", flags.Lookup("port"))
	viper.BindPFlag("debug", flags.Lookup("debug"))
}

func runServer() error {
	tbox := rice.MustFindBox("templates")
	sbox := rice.MustFindBox("static")

	cat, loader, err := openCatalog()
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"generators": cat.Len()}).Info("catalog loaded")

	s := server.New(tbox, sbox, cat, loader)
	mux := s.ServeMux()

	done := make(chan bool, 1)
	go serve(mux)
	go s.ListenForEvents(done)

	<-done
	return nil
}

func serve(mux *http.ServeMux) {
	port := viper.GetInt("port")
	tlsPort := viper.GetInt("tls_port")
	forceTLS := viper.GetBool("force_tls")
	tlsPrivateKeyFile := viper.GetString("tls_private_key")
	tlsPublicKeyFile := viper.GetString("tls_public_key")

	if port <= 0 || port > maxPort {
		log.Fatalf("PORT must be 0 < PORT <= %d", maxPort)
	} else if tlsPort > 0 && port == tlsPort {
		log.Fatalf("PORT cannot equal TLS_PORT")
	} else if tlsPort > maxPort {
		log.Fatalf("TLS_PORT must be 0 < TLS_PORT <= %d", maxPort)
	} else if tlsPort > 0 && (tlsPublicKeyFile == "" || tlsPrivateKeyFile == "") {
		log.Fatal("must supply TLS_PRIVATE_KEY and TLS_PUBLIC_KEY if TLS_PORT specified")
	}

	if tlsPort > 0 {
		go func() {
			pstr := fmt.Sprintf(":%d", tlsPort)
			log.WithFields(log.Fields{"pid": os.Getpid()}).Printf("Listening on %s", pstr)

			log.Fatal(http.ListenAndServeTLS(pstr, tlsPublicKeyFile, tlsPrivateKeyFile, handlers.CombinedLoggingHandler(log.StandardLogger().Out, mux)))
		}()
	}

	pstr := fmt.Sprintf(":%d", port)
	log.WithFields(log.Fields{"pid": os.Getpid()}).Printf("Listening on %s", pstr)
	log.Fatal(http.ListenAndServe(pstr, handlers.CombinedLoggingHandler(log.StandardLogger().Out, maybeRedirectToTLS(tlsPort, forceTLS, mux))))
}

// maybeRedirectToTLS is middleware for optionally redirecting the user to the TLS version based on arguments passed to the application.
func maybeRedirectToTLS(tlsPort int, forceTLS bool, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if forceTLS && tlsPort > 0 {
			hostname := strings.Split(r.Host, ":")[0]
			if tlsPort != 443 {
				hostname += fmt.Sprintf(":%d", tlsPort)
			}

			url := "https://" + hostname + r.URL.RequestURI()
			http.Redirect(w, r, url, http.StatusMovedPermanently)
			return
		}

		h.ServeHTTP(w, r)
	})
}
