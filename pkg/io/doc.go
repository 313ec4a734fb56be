// Package io saves node graphs to markup documents and loads them back.
//
// # Overview
//
// A [Codec] writes the nodes, edges and annotations of a [graph.Graph]
// into a container element and reconstructs them later. Node state is
// persisted through the object codec of pkg/codec, so any property a node's
// Data entity declares is saved with the node.
//
// # Document Format
//
//	<nodeflow version="1">
//	  <graph>
//	    <node type="Constant" name="two" x="40" y="80" id="0">
//	      <data>
//	        <property type="float64" name="value" value="2"/>
//	      </data>
//	    </node>
//	    <node type="Display" name="out" x="240" y="80" id="1">
//	      <data/>
//	    </node>
//	    <edge fromItem="0" fromIndex="0" toItem="1" toIndex="0" transportType="float64"/>
//	    <annotation x="40" y="10">
//	      <data content="demo" width="160" color="#ffcc00"/>
//	    </annotation>
//	  </graph>
//	</nodeflow>
//
// Node ids are dense integers assigned per save. They only exist so edges
// can refer to nodes within one document and are not stable identities.
// Edges may carry the routing attributes rmode, len and hori when their
// route was adjusted by hand.
//
// # Loading
//
// Loading is best effort. Every node element yields one entry in
// [Result.Items]; a node whose type cannot be created leaves a nil
// placeholder and fails the load without stopping it. Edges that reference
// unknown ids, out-of-range ports or mismatched transport types are
// dropped with a [Diagnostic] and do not fail the load. The returned
// [Result] always carries whatever could be reconstructed.
//
// With [LoadOptions].Connect set, valid edges become live links between
// their ports. Without it edges are only recorded, which is what a preview
// needs.
//
// # Inspection
//
// [Inspect] scans a graph container without creating any types and
// reports counts and structural problems. It is cheap enough to run on
// untrusted uploads before accepting them.
package io
