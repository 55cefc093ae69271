// Package client implements a client for tKV servers.
//
// Client encodes commands as request lines (quoting arguments that contain
// blanks), sends them through an IRPCClientTransport and decodes the
// response line:
//
//   - "OK: <result>" returns the result
//   - "ERR: None" returns a store error with code RetCNotFound (see store.IsNotFound)
//   - any other "ERR: <message>" returns a *ServerError
//
// Usage Example:
//
//	config := common.ClientConfig{
//		TimeoutSecond: 5,
//		Transport: common.ClientTransportConfig{
//			Endpoints:  []string{"127.0.0.1:8080"},
//			RetryCount: 3,
//		},
//	}
//
//	c, err := client.NewClient(config, tcp.NewTCPClientTransport())
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	if _, err := c.Set("lang", "go"); err != nil {
//		return err
//	}
package client
