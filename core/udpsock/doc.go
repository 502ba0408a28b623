// Package udpsock is a small non-blocking IPv4 UDP socket layer.
//
// A Subsystem owns the platform socket layer for the process. Sockets are
// created from it, opened on a local port, and then polled:
//
//	sys := udpsock.NewSubsystem(&udpsock.Config{Logger: logger})
//	if err := sys.Init(); err != nil {
//		return err
//	}
//	defer sys.Shutdown()
//
//	sock := sys.NewSocket()
//	if !sock.Open(9001) {
//		return errors.New("cannot open socket")
//	}
//	defer sock.Close()
//
//	sock.Send(udpsock.AddressFromOctets(127, 0, 0, 1, 9002), []byte("hello"))
//	for {
//		n, from := sock.Receive(buf)
//		if n == 0 {
//			udpsock.SleepFor(10)
//			continue
//		}
//		// ...
//	}
//
// Delivery is whatever UDP provides: best effort, unordered, one datagram at a time.
package udpsock
