// Package jambonz serves the websocket side of the jambonz voice platform.
//
// jambonz opens two kinds of websocket connections to an application:
//
//   - Hook connections (sub-protocol "ws.jambonz.org") carry the jambonz
//     websocket API: JSON messages such as session:new or verb:hook that the
//     application answers with verbs.
//   - Recording connections (sub-protocol "audio.jambonz.org") carry one JSON
//     message describing a call's audio followed by binary audio frames.
//
// Each accepted connection runs the session loop from the http package: it
// keeps the peer alive with ping/pong, classifies frames into Requests
// according to the route's RouteFlavor and hands each Request to the route's
// Handler inside a RequestEnvelope.
//
// # Requests
//
//	Hook route,      text frame   → HookRequest (Request.Hook)
//	Recording route, text frame   → RecordingNewRequest (Request.Recording)
//	Recording route, binary frame → BinaryRequest (Request.Binary)
//	any route,       close frame  → CloseRequest (Request.Close)
//
// Text frames that are not valid JSON objects are logged and dropped. Binary
// frames on a Hook route are ignored.
//
// # Dispatch
//
// Requests of one connection are handled one at a time, in arrival order, on
// a worker owned by the connection. The session loop never waits for a
// handler except for the final CloseRequest, which completes before the
// connection is torn down. Handler errors and panics are logged.
//
// # Example
//
//	type App struct{ calls *CallStore }
//
//	srv := jambonz.NewServer(&App{}, jambonz.HandlerFunc[*App](
//	    func(ctx context.Context, env jambonz.RequestEnvelope[*App]) error {
//	        switch env.Request.Kind {
//	        case jambonz.HookRequest:
//	            return jambonz.Ack(env.Session, env.Request.Hook.MsgID, verbs)
//	        case jambonz.BinaryRequest:
//	            env.State.calls.Append(env.ID, env.Request.Binary)
//	        }
//	        return nil
//	    }))
//	log.Fatal(srv.ListenAndServe(ctx))
package jambonz
