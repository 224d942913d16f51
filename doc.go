// Package mqtt implements an MQTT 3.1 client.
//
// The center of the package is CallbackConnection, a non-blocking,
// callback-driven connection engine that runs entirely on a serial
// DispatchQueue supplied by its transport. It implements the QoS 0/1/2
// publish and subscribe flows, message-id allocation, keep-alive, and
// cooperative backpressure against the transport's bounded send buffer.
//
// # Connecting
//
// Dial establishes the network connection, performs the CONNECT/CONNACK
// handshake, and returns a CallbackConnection with its read side suspended:
//
//	conn, err := mqtt.Dial("tcp://broker:1883",
//	    mqtt.WithClientID("sensor-1"),
//	    mqtt.WithKeepAlive(30),
//	)
//
// Install a Listener and call Resume before traffic flows. All
// CallbackConnection methods must be invoked on the connection's dispatch
// queue; use DispatchQueue().Execute to hop onto it:
//
//	conn.DispatchQueue().Execute(func() {
//	    conn.SetListener(myListener)
//	    conn.Resume()
//	})
//
// # Higher-level wrappers
//
// FutureConnection marshals calls onto the dispatch queue and returns
// Future values; BlockingConnection layers context-aware blocking calls on
// top of it. Most applications want one of these:
//
//	fc := mqtt.NewFutureConnection(conn)
//	bc := mqtt.NewBlockingConnection(fc)
//	if err := bc.Publish(ctx, "a/b", []byte("hi"), mqtt.QoS1, false); err != nil {
//	    ...
//	}
//
// # Transports
//
// URL schemes map to dialers: tcp, tls (ssl), ws, wss, and quic. Custom
// transports implement the Transport interface; anything that can offer
// frames without blocking and serialize its callbacks onto a DispatchQueue
// can carry a connection.
package mqtt
