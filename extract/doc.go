// Copyright 2025 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package extract implements extracting searchable items from LDOCE5 entry
// and activator documents.
//
// Each item has a type, a display label in a small markup language, a
// content path, the text that is indexed, a sort key, a space separated list
// of filter codes and a priority. Items with equal sort keys are ordered by
// priority. Lower priorities are more prominent.
//
// Label markup elements:
//
//	<h>  headword item         <n>  headword
//	<f>  frequent headword     <s>  homograph or sense number
//	<p>  parts of speech       <v>  variant form
//	<pv> phrasal verb          <l>  lexical unit item
//	<c>  phrase item           <o>  phrase
//	<b>  collocate title       <a>  activator item
//	<e>  activator exponent
package extract
