// Package appconfiguration evaluates feature flags and typed properties
// against caller-supplied entities, using a configuration document kept in
// sync with a remote service over an always-on push channel.
//
// # Basic usage
//
//	configID := appconfiguration.ConfigurationID{
//	    GUID:          "12345678-1234-1234-1234-12345678abcd",
//	    EnvironmentID: "production",
//	    CollectionID:  "ecommerce",
//	}
//
//	client, err := appconfiguration.New(configID, serverClient, appconfiguration.WithOfflineMode(appconfiguration.OfflineModeCache))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Shutdown(context.Background())
//
//	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
//	defer cancel()
//	if err := client.WaitUntilOnline(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	feature, err := client.GetFeature("new-checkout-flow")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	value, err := feature.Value(myEntity)
//
// # Scope
//
// This package implements the evaluation core only: targeting, rollout,
// snapshot management, live-configuration sync, and metering aggregation.
// The concrete HTTP/WebSocket transport, identity-token exchange, and
// tenant hostname derivation are external collaborators the caller
// supplies through ServerClient and TokenProvider.
package appconfiguration
